// Package logs locates and tails astrotux log files for the CLI.
//
// Latest finds the newest dated log file in the log directory, Tail returns
// its last lines with the offset to resume from, and Follow polls for lines
// appended after that offset until the context ends.
package logs
