package config

// Knobs understood by the engine
const (
	// Force a reschedule point at every thread start, yield and sleep
	BreakAll = "cg.threads.break_all"
	// Enumerate boolean choices as [false, true] instead of [true, false]
	BooleanFalseFirst = "cg.boolean.false_first"
	// Shuffle the order of choices. The order only depends on the seed and the id of the choice generator
	RandomizeChoices = "cg.randomize_choices"
	Seed             = "cg.seed"

	// Enable the mark and sweep collector
	Sweep = "vm.sweep"
	// Record that finalizers should run. Finalizers are not executed yet
	Finalize = "vm.finalize"
	// Maximum number of live objects before the simulated out of memory flag is raised. 0 is unlimited
	MaxObjects = "vm.max_objects"

	// Only serialize top frames and directly referenced objects at scheduling points
	AdaptiveSerializer = "serialize.adaptive"

	LogLevel  = "log.level"
	LogFormat = "log.format"

	InspectAddr = "inspect.addr"
)

type knobKind int

const (
	boolKnob knobKind = iota
	intKnob
	stringKnob
)

var knownKeys = map[string]knobKind{
	BreakAll:           boolKnob,
	BooleanFalseFirst:  boolKnob,
	RandomizeChoices:   boolKnob,
	Seed:               intKnob,
	Sweep:              boolKnob,
	Finalize:           boolKnob,
	MaxObjects:         intKnob,
	AdaptiveSerializer: boolKnob,
	LogLevel:           stringKnob,
	LogFormat:          stringKnob,
	InspectAddr:        stringKnob,
}
