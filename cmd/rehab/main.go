// Command rehab runs the rehab plan API and its maintenance tasks.
package main

func main() {
	Execute()
}
