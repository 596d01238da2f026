// Command heapctl drives a mark-sweep word heap from scripts or a random
// workload and reports what the collector did.
package main

func main() {
	execute()
}
