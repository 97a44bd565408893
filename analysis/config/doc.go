// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config provides the configuration of the abstract interpretation analyses and the leveled logger they share.

Use [Load](filename, contents) to load a configuration from the contents of a yaml file, or [NewDefault] to obtain
the default configuration. There is no global configuration: the driver owns the *Config and passes it, together with
the [LogGroup] built from it, to the components that need them.

The top-level fields can be any of the fields defined in the Config struct type. For example, a valid config file
is as follows:

	options:
	  log-level: 4
	  call-strategy: summaries
	  summaries-dir: summaries
	analyses:
	  - nullcheck
	  - pointsto
	library-models:
	  - function: os.Getenv
	    no-effect: true
	  - function: bytes.NewBuffer
	    returns-non-null: true
	    returns-fresh: true

# Library models

Library models describe functions whose body is not analyzed. Each analysis turns a model into a summary of its own
kind, and those summaries are inserted in the summary database before any procedure is analyzed. The "function"
field of a model is matched against procedure identifiers exactly.
*/
package config
