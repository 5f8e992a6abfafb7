// Command ralphloop supervises a repeated agent-coding loop: it invokes an
// external coding-agent subprocess, analyzes its output and the
// repository's working-tree diff, tracks a circuit breaker against
// stagnation, and gates termination behind an evidence collector.
package main

func main() {
	Execute()
}
