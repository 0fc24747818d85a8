// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package manifest parses HCL procedure manifests.
//
// A manifest declares, per module, the procedures it exports and the calling
// contract of each one: which Go handler implements it, its ordered
// arguments, and the fields of the records it returns.
//
//	module "echo" {
//	  procedure "hello" {
//	    handler     = "EchoHello"
//	    description = "Echoes its arguments."
//
//	    arg "required_arg" { type = any }
//	    arg "optional_arg" {
//	      type    = any
//	      default = null
//	    }
//
//	    result "result" { type = string }
//	    result "args" {
//	      type       = any
//	      deprecated = true
//	    }
//	  }
//	}
//
// Declaring the contract next to, rather than inside, the Go code keeps it
// reviewable on its own and lets tooling list procedures without loading
// them. A parsed Procedure converts to a signature.Signature, which the
// binder then checks against the handler's Go parameters.
package manifest
