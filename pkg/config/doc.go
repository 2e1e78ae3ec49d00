// Package config loads adreader configuration.
//
// Load reads an optional YAML file through viper and applies environment
// overrides with the ADREADER_ prefix, where nested keys join with an
// underscore:
//
//	ADREADER_FACEBOOK_ACCESS_TOKEN=... adreader read facebook
//	ADREADER_POLLING_MAX_ELAPSED=2h adreader read dv360
//
// Example file:
//
//	env: production
//	staging:
//	  dir: /var/tmp/adreader
//	output:
//	  writer: gcs
//	  gcs:
//	    bucket: marketing-raw
//	dv360:
//	  advertiser_id: "12345"
//	  file_types: [FILE_TYPE_CAMPAIGN, FILE_TYPE_LINE_ITEM]
package config
