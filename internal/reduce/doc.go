// Package reduce is the partitioned-reduction engine shared by every lab.
//
// A reduction folds the indices [0, N) into a single accumulator with a
// caller-supplied Reducer. Sequential folds them in order in the calling
// goroutine and serves as the reference; Parallel splits the range with the
// partition package, folds each partition into a private accumulator on its
// own worker, and merges the partials into a mutex-guarded Collector in
// arrival order. Verify runs both and compares the values, exactly or within
// a floating-point tolerance.
//
// The engine keeps no state between calls. Workers are started per call
// unless the caller supplies a persistent Pool with WithPool.
package reduce
