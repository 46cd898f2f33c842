// Package recipe turns declarative, parameterized change recipes into
// concrete gateway CLI commands.
//
// A recipe declares named parameters and an ordered list of steps whose
// args carry {{param}} placeholders. Resolution substitutes a flat
// parameter map into the steps (ResolveSteps), and each resolved step
// expands into one or more queueable commands (Commands). Action kinds
// are a closed enum with an exhaustive switch - an action name the
// compiler does not know is a hard error, never a silently dropped
// step.
//
// Recipe definitions are authored in CUE and compiled with LoadDir.
package recipe
