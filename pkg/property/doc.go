// Package property stores typed configuration values.
//
// A Property keeps its value as text together with a Kind that defines how
// the text parses: string, int, float, bool, duration, date or log level.
// When FixedValues is set the value must be one of them. The Store validates
// on every write and notifies repository listeners like any other collection.
//
//	store := property.NewStore(repository.NewMemoryStorage[*property.Property]())
//	_ = store.Create(ctx, property.New("log.level", property.KindLogLevel, "INFO", "DEBUG", "INFO", "WARN"))
//	p, _ := store.FindByID(ctx, "log.level")
//	level, _ := p.Level()
package property
