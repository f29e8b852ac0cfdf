package saga

// Package saga runs an ordered sequence of fallible steps against a shared
// piece of state, undoing already-completed steps in reverse order when a
// later step fails. For more on the saga pattern, see this 2017 JOTB talk
// by Caitie McCaffrey: https://www.youtube.com/watch?v=0UTOLRTwOX0
//
// Overview
//
// 1. Define your steps:
//    - Write a forward function and a compensate function, both of shape
//      func(ctx, T) (T, error), and package them with NewStep.
// 2. Build a saga:
//    - Use New to create an orchestrator for your state type and Add to
//      append steps. Add returns the same saga, so calls chain.
//    - Alternatively, register shared steps in a Registry and use
//      Assemble to build sagas from step names.
// 3. Run it:
//    - Call Execute with an initial state value. The state produced by
//      each step feeds the next. On the first forward failure the saga
//      compensates completed steps in reverse and returns the original
//      error.
// 4. Observe it:
//    - Attach a Listener or a zap logger with WithListener/WithLogger to
//      see every transition, including compensate failures that are
//      otherwise swallowed. Attach a Store to archive terminal run
//      reports.
//
// For a runnable example, see examples/orderflow.
