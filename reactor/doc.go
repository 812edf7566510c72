// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor is the lowest layer of the IO runtime: a single
// EventReactor, shared by every scheduler worker, polls the OS readiness
// primitive (epoll on Linux, IOCP on Windows) and hands ioruntime.Manager
// back a batch of ready file descriptors plus their direction. It knows
// nothing about fibers, continuations or scheduler affinity; that's
// ioruntime's job.
package reactor
