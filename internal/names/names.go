// Package names generates human-readable display names for sessions that
// connect without one.
package names

import (
	"fmt"
	"math/rand"
)

var adjectives = []string{
	"amber", "bold", "brisk", "calm", "clever", "cosmic", "crimson", "daring",
	"eager", "fleet", "gentle", "hazel", "keen", "lively", "lucky", "mellow",
	"nimble", "quiet", "rapid", "silver", "sly", "snappy", "sunny", "swift",
	"tidal", "vivid", "wry", "zesty",
}

var animals = []string{
	"badger", "bison", "crane", "dingo", "falcon", "ferret", "gecko", "heron",
	"ibis", "jackal", "koala", "lemur", "lynx", "marten", "newt", "ocelot",
	"otter", "panda", "quail", "raven", "seal", "stoat", "tapir", "vole",
	"walrus", "wombat", "yak", "zebra",
}

// maxRolls bounds collision re-rolls before falling back to a numeric suffix.
const maxRolls = 10

// Random returns a name like "brisk-otter".
func Random() string {
	return adjectives[rand.Intn(len(adjectives))] + "-" + animals[rand.Intn(len(animals))]
}

// Pick returns a name for which taken reports false. It re-rolls up to
// maxRolls times, then appends an increasing counter to the last roll until
// the result is free.
func Pick(taken func(string) bool) string {
	name := Random()
	for i := 0; i < maxRolls && taken(name); i++ {
		name = Random()
	}
	if !taken(name) {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", name, n)
		if !taken(candidate) {
			return candidate
		}
	}
}
