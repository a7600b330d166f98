package task

import "log/slog"

// Initializer is implemented by tasks that receive their identity and
// ambient services before execution.
type Initializer interface {
	Initialize(name, version string, logger *slog.Logger, converter DataConverter)
}

// ConverterAware is implemented by adapters that marshal their own
// arguments and need the converter used for that.
type ConverterAware interface {
	SetConverter(converter DataConverter)
}

// Base is embedded by activities and orchestrations to satisfy Initializer.
type Base struct {
	name      string
	version   string
	logger    *slog.Logger
	converter DataConverter
}

// Initialize implements Initializer.
func (b *Base) Initialize(name, version string, logger *slog.Logger, converter DataConverter) {
	b.name = name
	b.version = version
	b.logger = logger
	b.converter = converter
}

// Name returns the task name, or "" before initialization.
func (b *Base) Name() string { return b.name }

// Version returns the task version.
func (b *Base) Version() string { return b.version }

// Logger returns the scoped logger, falling back to slog.Default.
func (b *Base) Logger() *slog.Logger {
	if b.logger == nil {
		return slog.Default()
	}
	return b.logger
}

// Converter returns the data converter, falling back to JSON.
func (b *Base) Converter() DataConverter {
	if b.converter == nil {
		return JSONConverter{}
	}
	return b.converter
}

// Initialized reports whether Initialize has been called.
func (b *Base) Initialized() bool { return b.name != "" }
