// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package signature turns an ordinary Go function into a typed read procedure
// that the engine can invoke.
//
// A procedure is described by an explicit Signature: its ordered arguments
// (required or optional with a default) and, optionally, the fields of the
// records it returns. Registration runs through a small state machine:
//
//	Unregistered --Validate--> Validated --Bind--> Bound
//
// Validate inspects the function itself and rejects shapes the synchronous
// calling convention cannot support: non-functions, variadic functions,
// functions that deliver results through a channel, and lazy producers
// (iter.Seq-style functions). Bind checks the declared argument types against
// the Go parameters, derives the Schema, and hands it to a Target together
// with an Invoker. Nothing here ever calls the function during registration.
//
// The engine always passes the procedure context to the Invoker. When the
// function does not take a leading *proc.Ctx parameter the Invoker drops it
// before forwarding the call.
package signature
