// Command screener is the operator CLI for the recommendation verification
// pipeline: enqueue candidates, inspect queue state and logs, rank verified
// items, and run the worker in the foreground.
package main
