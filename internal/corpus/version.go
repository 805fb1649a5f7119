package corpus

// GeneratorVersion is recorded with every run so that ids computed by
// different rule tables can be told apart.
const GeneratorVersion = "0.1.0"
