// Package manifest reads HCL registration manifests.
//
// A manifest names the loader instance, the types it defines and the
// functions it binds:
//
//	loader "math" {
//	  execution_paths = ["./lib"]
//	  module          = "add.wasm"
//
//	  policy {
//	    types     = "reject"
//	    functions = "overwrite"
//	  }
//	}
//
//	type "Integer" {
//	  kind      = "int"
//	  singleton = 0
//	}
//
//	function "add" {
//	  return = "Integer"
//	  param "a" { type = "Integer" }
//	  param "b" { type = "Integer" }
//	}
//
// Apply registers types before functions so every signature can resolve
// its type names.
package manifest
