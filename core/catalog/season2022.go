package catalog

// Season2022 is the built-in catalog used when no other source is configured.
var Season2022 = Definition{
	Season:         "2022",
	TurboThreshold: 20,
	Drivers: []DriverDef{
		{Name: "Verstappen", Cost: 30.5},
		{Name: "Hamilton", Cost: 31.0},
		{Name: "Perez", Cost: 17.5},
		{Name: "Norris", Cost: 16.0},
		{Name: "Leclerc", Cost: 18.0},
		{Name: "Bottas", Cost: 9.0},
		{Name: "Sainz", Cost: 17.0},
		{Name: "Gasly", Cost: 13.5},
		{Name: "Vettel", Cost: 11.5},
		{Name: "Ricciardo", Cost: 14.5},
		{Name: "Alonso", Cost: 12.5},
		{Name: "Ocon", Cost: 12.0},
		{Name: "Stroll", Cost: 9.5},
		{Name: "Tsunoda", Cost: 8.5},
		{Name: "Albon", Cost: 7.5},
		{Name: "Zhou", Cost: 8.0},
		{Name: "Schumacher", Cost: 6.5},
		{Name: "Russell", Cost: 24.0},
		{Name: "Magnussen", Cost: 5.5},
		{Name: "Latifi", Cost: 7.0},
	},
	Constructors: []ConstructorDef{
		{Name: "Redbull", Cost: 32.5, Drivers: []string{"Verstappen", "Perez"}},
		{Name: "Mercedes", Cost: 34.5, Drivers: []string{"Hamilton", "Russell"}},
		{Name: "McLaren", Cost: 18.5, Drivers: []string{"Norris", "Ricciardo"}},
		{Name: "Ferrari", Cost: 25.0, Drivers: []string{"Leclerc", "Sainz"}},
		{Name: "AstonMartin", Cost: 11.5, Drivers: []string{"Vettel", "Stroll"}},
		{Name: "AlphaTauri", Cost: 10.5, Drivers: []string{"Gasly", "Tsunoda"}},
		{Name: "Alpine", Cost: 14.0, Drivers: []string{"Alonso", "Ocon"}},
		{Name: "AlfaRomeo", Cost: 8.0, Drivers: []string{"Bottas", "Zhou"}},
		{Name: "Haas", Cost: 6.0, Drivers: []string{"Schumacher", "Magnussen"}},
		{Name: "Williams", Cost: 7.0, Drivers: []string{"Albon", "Latifi"}},
	},
}

// Default returns the built-in catalog.
func Default() *Catalog { return MustNew(Season2022) }
