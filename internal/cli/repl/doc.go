// Package repl is the interactive shell of worldsave-cli.
//
// Each line typed at the prompt is sent verbatim to a running server's
// entry-point socket and the status is printed. A few words are handled
// locally:
//
//   - help [prefix]  list entries and shell commands
//   - history        print the session history
//   - exit, quit     leave the shell
package repl
