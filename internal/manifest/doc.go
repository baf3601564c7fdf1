// Package manifest defines the provisioning recipe format.
//
// A recipe is a YAML document describing how to turn a base image into
// the final provisioned image: which context files to copy in, which OS
// packages and pinned Python requirements to install, which bundled
// source archive to build, and what the image's default command should
// be. Loading applies defaults, validation rejects malformed documents,
// and context checking enforces the fail-fast contract that every
// referenced file exists before a build starts.
//
// Example recipe:
//
//	base: ubuntu:22.04
//	workdir: /data
//	files:
//	  - source: data.csv
//	  - source: columns.json
//	system:
//	  packages: [python3, python3-pip]
//	python:
//	  requirements: requirements.txt
//	archive:
//	  source: featuretools-1.1.0.tar.gz
//	command: [/bin/bash]
package manifest
