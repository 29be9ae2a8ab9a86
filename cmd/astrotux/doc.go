// Command astrotux is the game-server notification agent CLI.
//
// "astrotux run" starts the long-running agent: it announces start and
// shutdown, turns console lines into command events, and serves the event
// API when notifications.api_bind is set. "astrotux send" broadcasts a single
// event, through a running agent's API when one answers and locally
// otherwise. The remaining commands inspect configuration, handlers, delivery
// history and log files.
package main
