package worker

// runPoolMaintenance evicts the longest-resident transactions once the
// pool has reached its configured capacity. Admission rejects new
// transactions at capacity, so without eviction a full pool of stale
// transactions would starve fresh submissions between mining runs.
func (w *Worker) runPoolMaintenance() {
	capacity := w.state.RetrieveGenesis().PoolMaxSize
	length := w.state.QueryMempoolLength()
	if length < capacity {
		return
	}

	w.evHandler("worker: runPoolMaintenance: started: poolSize[%d]", length)
	defer w.evHandler("worker: runPoolMaintenance: completed")

	evict := capacity / 10
	if evict == 0 {
		evict = 1
	}

	w.state.EvictOldestTransactions(evict)
}
