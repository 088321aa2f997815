/*
Package markov implements training and constrained generation for
fixed-order Markov chains over interned symbols.

A Model is trained once from a corpus of symbol sequences and is immutable
afterward, so any number of generation requests may share it concurrently.
Generation takes a set of per-position constraints and a target length, and
produces sequences that are guaranteed to satisfy every constraint: a
forward and a backward dynamic-programming pass over position-indexed state
tables establish, before the first symbol is drawn, that every step of the
sampler has at least one valid completion.
*/
package markov
