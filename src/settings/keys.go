package settings

// Settings store keys.
const (
	KeyPHPEnabled              = "php_enabled"
	KeyPHPAPIKey               = "php_api_key"
	KeyPHPReportNonFatal       = "php_report_non_fatal"
	KeyPHPReportDeprecations   = "php_report_deprecations"
	KeyPHPSendTestNotification = "php_send_test_notification"
	KeyJSEnabled               = "js_enabled"
	KeyJSAPIKey                = "js_api_key"
	KeyJSReportData            = "js_report_data"
	KeyJSSendTestNotification  = "js_send_test_notification"
	KeyEnvironmentName         = "environment_name"
	KeyVersion                 = "version"
	KeyEndpoint                = "endpoint"
	KeyAppEndpoint             = "app_endpoint"
)

// Defaults holds the value used for every key the store has no row for.
var Defaults = map[string]string{
	KeyPHPEnabled:              "false",
	KeyPHPAPIKey:               "",
	KeyPHPReportNonFatal:       "false",
	KeyPHPReportDeprecations:   "false",
	KeyPHPSendTestNotification: "false",
	KeyJSEnabled:               "false",
	KeyJSAPIKey:                "",
	KeyJSReportData:            "true",
	KeyJSSendTestNotification:  "false",
	KeyEnvironmentName:         "",
	KeyVersion:                 "",
	KeyEndpoint:                "",
	KeyAppEndpoint:             "",
}

var boolKeys = map[string]struct{}{
	KeyPHPEnabled:              {},
	KeyPHPReportNonFatal:       {},
	KeyPHPReportDeprecations:   {},
	KeyPHPSendTestNotification: {},
	KeyJSEnabled:               {},
	KeyJSReportData:            {},
	KeyJSSendTestNotification:  {},
}

// Keys returns every known key in a stable order.
func Keys() []string {
	return []string{
		KeyPHPEnabled,
		KeyPHPAPIKey,
		KeyPHPReportNonFatal,
		KeyPHPReportDeprecations,
		KeyPHPSendTestNotification,
		KeyJSEnabled,
		KeyJSAPIKey,
		KeyJSReportData,
		KeyJSSendTestNotification,
		KeyEnvironmentName,
		KeyVersion,
		KeyEndpoint,
		KeyAppEndpoint,
	}
}

// IsBool reports whether key holds a boolean value.
func IsBool(key string) bool {
	_, ok := boolKeys[key]
	return ok
}
