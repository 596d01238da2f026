package gc

// sweep releases every unmarked allocation.
func (c *Collector) sweep() (count, words int) {
	count, words = c.t.RemoveUnmarked()
	c.log.Debug("gc: sweep", "freed", count, "freed_words", words, "usage", c.t.Usage())
	return count, words
}
