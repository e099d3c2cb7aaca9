// Package director implements the job queue and admission scheduler: the
// Queue Core, Scheduled-Start Waiter, Worker Pool, Admission Controller,
// and Reschedule Engine, wired together behind the four operations a
// caller sees — New (init), Submit, Remove, and Destroy.
//
// A Director holds three intrusive lists — waiting, ready, running —
// under one mutex, exactly as a single big lock across short critical
// sections that the rest of the package is built to keep short. The
// concurrency registry and catalog cache are constructed separately and
// passed in, so tests can give each Director its own isolated state.
package director
