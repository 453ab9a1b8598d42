/*
Package tickit provides a deterministic, discrete-event simulation kernel
for device-simulation frameworks: a dependency-ordered event router, a
per-tick propagation engine (the ticker), and master/slave schedulers that
drive simulated time and bridge nested sub-simulations.

The kernel never interprets the values flowing between components; it only
routes them according to a static wiring graph and enforces the ordering
and at-most-one-update-per-tick discipline that makes a large simulated
plant reproducible.

The sub-packages tickit/stateif, tickit/config, and tickit/metrics provide
the transport, configuration, and telemetry concerns the scheduler
consumes; cmd/tickit is a minimal runnable entry point over all of them.
*/
package tickit
