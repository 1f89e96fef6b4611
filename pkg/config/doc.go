/*
Package config manages run options parsing and validation for recolor.

	            +-------------+
	            |   Options   |
	            | (defaults)  |
	            +------+------+
	                   |
	   +-----------+---+-------+-----------+
	   |           |           |           |
	+--+---+   +---+--+   +----+---+   (flags/args
	| YAML |   | JSON |   |  HCL   |    override)
	+------+   +------+   +--------+

🎯 Purpose:
- Loads the optional options file (.recolor.{yaml,yml,json,hcl})
- Merges file values over built-in defaults
- Validates fuzz range and required paths
- Keeps absent keys distinct from explicit zero values

🔄 Flow:
1. Starts from DefaultOptions
2. Picks a registered parser by file extension
3. Merges parsed pointer fields over the defaults
4. Validates the merged result

🤝 Interfaces:
- Parser: format-specific parsing, registered at init

📝 Design Philosophy:
The mapping table (colors.map) is deliberately NOT part of this package: it
is the run's input data, not its configuration, and lives in pkg/mapping
with its own strict error taxonomy.
*/
package config
