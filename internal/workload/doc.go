// Package workload holds the labs: small compute kernels adapted to the
// reduction engine. Each lab validates its parameters, generates its input
// deterministically from a seed, and hands a Reducer to reduce.Verify.
//
// Labs are looked up by name through a Registry. Default returns one with
// every built-in lab in presentation order.
package workload
