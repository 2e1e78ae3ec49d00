// Reader and writer option sections.

package config

import "time"

// DV360Config holds options of the DV360 SDF reader.
type DV360Config struct {
	AccessToken  string `yaml:"access_token" json:"access_token" mapstructure:"access_token"`
	RefreshToken string `yaml:"refresh_token" json:"refresh_token" mapstructure:"refresh_token"`
	ClientID     string `yaml:"client_id" json:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret" mapstructure:"client_secret"`
	AdvertiserID string `yaml:"advertiser_id" json:"advertiser_id" mapstructure:"advertiser_id"`
	// FileTypes are FILE_TYPE_* names, emitted in this order
	FileTypes  []string `yaml:"file_types" json:"file_types" mapstructure:"file_types"`
	FilterType string   `yaml:"filter_type" json:"filter_type" mapstructure:"filter_type"`
	FilterIDs  []string `yaml:"filter_ids" json:"filter_ids" mapstructure:"filter_ids"`
	SDFVersion string   `yaml:"sdf_version" json:"sdf_version" mapstructure:"sdf_version"`
	// DateFormat is a Go time layout applied to the Date column
	DateFormat string `yaml:"date_format" json:"date_format" mapstructure:"date_format"`
	// Format is json or csv
	Format string `yaml:"format" json:"format" mapstructure:"format"`
	// Endpoint overrides the API base URL
	Endpoint string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
}

// GSheetsConfig holds options of the Google Sheets reader. The service
// account fields mirror the keys of a service account key file.
type GSheetsConfig struct {
	ProjectID    string `yaml:"project_id" json:"project_id" mapstructure:"project_id"`
	PrivateKeyID string `yaml:"private_key_id" json:"private_key_id" mapstructure:"private_key_id"`
	PrivateKey   string `yaml:"private_key" json:"private_key" mapstructure:"private_key"`
	ClientEmail  string `yaml:"client_email" json:"client_email" mapstructure:"client_email"`
	ClientID     string `yaml:"client_id" json:"client_id" mapstructure:"client_id"`
	ClientCert   string `yaml:"client_cert" json:"client_cert" mapstructure:"client_cert"`
	SheetKey     string `yaml:"sheet_key" json:"sheet_key" mapstructure:"sheet_key"`
	// PageNumber is the 0-based worksheet index
	PageNumber int    `yaml:"page_number" json:"page_number" mapstructure:"page_number"`
	Endpoint   string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
}

// FacebookConfig holds options of the Facebook Marketing reader.
type FacebookConfig struct {
	AppID       string   `yaml:"app_id" json:"app_id" mapstructure:"app_id"`
	AppSecret   string   `yaml:"app_secret" json:"app_secret" mapstructure:"app_secret"`
	AccessToken string   `yaml:"access_token" json:"access_token" mapstructure:"access_token"`
	ObjectIDs   []string `yaml:"object_ids" json:"object_ids" mapstructure:"object_ids"`
	// ObjectType is one of account, campaign, adset, ad, creative
	ObjectType string `yaml:"object_type" json:"object_type" mapstructure:"object_type"`
	Level      string `yaml:"level" json:"level" mapstructure:"level"`
	// AdInsights selects the insights endpoint; false queries object nodes
	AdInsights       bool     `yaml:"ad_insights" json:"ad_insights" mapstructure:"ad_insights"`
	Breakdowns       []string `yaml:"breakdowns" json:"breakdowns" mapstructure:"breakdowns"`
	ActionBreakdowns []string `yaml:"action_breakdowns" json:"action_breakdowns" mapstructure:"action_breakdowns"`
	Fields           []string `yaml:"fields" json:"fields" mapstructure:"fields"`
	TimeIncrement    string   `yaml:"time_increment" json:"time_increment" mapstructure:"time_increment"`
	StartDate        string   `yaml:"start_date" json:"start_date" mapstructure:"start_date"`
	EndDate          string   `yaml:"end_date" json:"end_date" mapstructure:"end_date"`
	// DatePreset is passed through to the Graph API (last_7d, this_month...)
	DatePreset string `yaml:"date_preset" json:"date_preset" mapstructure:"date_preset"`
	// DateRange is a named relative range (YESTERDAY, LAST_7_DAYS...)
	DateRange       string `yaml:"date_range" json:"date_range" mapstructure:"date_range"`
	AddDateToReport bool   `yaml:"add_date_to_report" json:"add_date_to_report" mapstructure:"add_date_to_report"`
	APIVersion      string `yaml:"api_version" json:"api_version" mapstructure:"api_version"`
	PageSize        int    `yaml:"page_size" json:"page_size" mapstructure:"page_size"`
	// Async runs insights as report runs polled to completion
	Async        bool          `yaml:"async" json:"async" mapstructure:"async"`
	PollInterval PollingConfig `yaml:"poll_interval" json:"poll_interval" mapstructure:"poll_interval"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
}

// OutputConfig selects and configures the writer.
type OutputConfig struct {
	// Writer is the registered writer name (console, local, gcs, s3, bigquery)
	Writer      string `yaml:"writer" json:"writer" mapstructure:"writer"`
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
	// ExtraColumn is appended to CSV line streams when its name is set
	ExtraColumn ExtraColumnConfig    `yaml:"extra_column" json:"extra_column" mapstructure:"extra_column"`
	Local       LocalOutputConfig    `yaml:"local" json:"local" mapstructure:"local"`
	GCS         GCSOutputConfig      `yaml:"gcs" json:"gcs" mapstructure:"gcs"`
	S3          S3OutputConfig       `yaml:"s3" json:"s3" mapstructure:"s3"`
	BigQuery    BigQueryOutputConfig `yaml:"bigquery" json:"bigquery" mapstructure:"bigquery"`
}

// ExtraColumnConfig names a constant column added to CSV lines.
type ExtraColumnConfig struct {
	Name  string `yaml:"name" json:"name" mapstructure:"name"`
	Value string `yaml:"value" json:"value" mapstructure:"value"`
}

// LocalOutputConfig configures the local file writer.
type LocalOutputConfig struct {
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`
}

// GCSOutputConfig configures the Cloud Storage writer.
type GCSOutputConfig struct {
	Bucket          string `yaml:"bucket" json:"bucket" mapstructure:"bucket"`
	Prefix          string `yaml:"prefix" json:"prefix" mapstructure:"prefix"`
	// UserProject is billed for requests to requester-pays buckets
	UserProject     string `yaml:"user_project" json:"user_project" mapstructure:"user_project"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
}

// S3OutputConfig configures the S3 writer.
type S3OutputConfig struct {
	Bucket   string `yaml:"bucket" json:"bucket" mapstructure:"bucket"`
	Prefix   string `yaml:"prefix" json:"prefix" mapstructure:"prefix"`
	Region   string `yaml:"region" json:"region" mapstructure:"region"`
	Endpoint string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
}

// BigQueryOutputConfig configures the BigQuery load writer. Each stream is
// loaded into Table, or into a table named after the stream when Table is
// empty.
type BigQueryOutputConfig struct {
	ProjectID       string        `yaml:"project_id" json:"project_id" mapstructure:"project_id"`
	Dataset         string        `yaml:"dataset" json:"dataset" mapstructure:"dataset"`
	Table           string        `yaml:"table" json:"table" mapstructure:"table"`
	Location        string        `yaml:"location" json:"location" mapstructure:"location"`
	CredentialsFile string        `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}
