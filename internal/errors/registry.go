package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://payelements.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Usage Errors (P001-P009)
	// ============================================

	"P001": {
		Category: CategoryUsage,
		Message:  "Elements used outside of a provider scope",
		Detail:   "An elements scope needs a provider ancestor. Create it with the scope returned by provider.New.",
		DocURL:   docBase + "P001",
	},
	"P002": {
		Category: CategoryUsage,
		Message:  "Widget used outside of an elements scope",
		Detail:   "Widgets are created from the elements group of their nearest elements ancestor.",
		DocURL:   docBase + "P002",
	},
	"P003": {
		Category: CategoryUsage,
		Message:  "Checkout used outside of a provider scope",
		Detail:   "Session and price redirects are performed by the provider SDK and need a provider ancestor.",
		DocURL:   docBase + "P003",
	},

	// ============================================
	// Initialization Errors (P010-P019)
	// ============================================

	"P010": {
		Category: CategoryInitialization,
		Message:  "Publishable key is required",
		Detail:   "The provider cannot load the SDK without a publishable key.",
		DocURL:   docBase + "P010",
	},
	"P011": {
		Category: CategoryInitialization,
		Message:  "Provider SDK failed to load",
		Detail:   "The remote SDK could not be loaded. Check the network and the publishable key format.",
		DocURL:   docBase + "P011",
	},
	"P012": {
		Category: CategoryInitialization,
		Message:  "Provider SDK returned no handle",
		Detail:   "The loader completed without producing an SDK handle.",
		DocURL:   docBase + "P012",
	},

	// ============================================
	// Configuration Errors (P020-P039)
	// ============================================

	"P020": {
		Category: CategoryConfig,
		Message:  "Elements requires a client secret or mode, currency and amount",
		Detail:   "Pass a client secret from a payment or setup intent, or the full deferred intent triple.",
		DocURL:   docBase + "P020",
	},
	"P021": {
		Category: CategoryConfig,
		Message:  "Invalid elements mode",
		Detail:   "Mode must be one of payment, setup or subscription.",
		DocURL:   docBase + "P021",
	},
	"P030": {
		Category: CategoryConfig,
		Message:  "Checkout requires a session ID, a price or a URL",
		Detail:   "Pass a session ID, a price ID with mode and return URLs, or a hosted checkout URL.",
		DocURL:   docBase + "P030",
	},
	"P031": {
		Category: CategoryConfig,
		Message:  "Incomplete price checkout options",
		Detail:   "Price checkouts need a mode, a success URL and a cancel URL.",
		DocURL:   docBase + "P031",
	},
	"P032": {
		Category: CategoryConfig,
		Message:  "Checkout URL mode requires a navigator",
		Detail:   "Direct URL redirects are performed by a navigator supplied in the options.",
		DocURL:   docBase + "P032",
	},

	// ============================================
	// Redirect Errors (P040-P049)
	// ============================================

	"P040": {
		Category: CategoryRedirect,
		Message:  "Checkout redirect failed",
		Detail:   "The redirect call failed before reaching the provider.",
		DocURL:   docBase + "P040",
	},
	"P041": {
		Category: CategoryRedirect,
		Message:  "Provider rejected the checkout redirect",
		Detail:   "The provider reported an error for the checkout session.",
		DocURL:   docBase + "P041",
	},

	// ============================================
	// Widget Errors (P050-P059)
	// ============================================

	"P050": {
		Category: CategoryWidget,
		Message:  "Widget creation failed",
		Detail:   "The elements group could not create the widget.",
		DocURL:   docBase + "P050",
	},
	"P051": {
		Category: CategoryWidget,
		Message:  "Widget mount failed",
		Detail:   "The widget could not be mounted to its slot.",
		DocURL:   docBase + "P051",
	},
	"P052": {
		Category: CategoryWidget,
		Message:  "Widget input invalid",
		Detail:   "The widget reported a validation error for the current input.",
		DocURL:   docBase + "P052",
	},
	"P053": {
		Category: CategoryWidget,
		Message:  "Elements group creation failed",
		Detail:   "The provider could not create an elements group for the given options.",
		DocURL:   docBase + "P053",
	},

	// ============================================
	// Protocol Errors (P060-P069)
	// ============================================

	"P060": {
		Category: CategoryProtocol,
		Message:  "Bridge connection closed",
		Detail:   "The browser bridge connection was closed before the call completed.",
		DocURL:   docBase + "P060",
	},
	"P061": {
		Category: CategoryProtocol,
		Message:  "Invalid bridge frame",
		Detail:   "The received frame could not be decoded.",
		DocURL:   docBase + "P061",
	},
	"P062": {
		Category: CategoryProtocol,
		Message:  "Unknown widget event",
		Detail:   "The event name is not part of the widget event set.",
		DocURL:   docBase + "P062",
	},
	"P063": {
		Category: CategoryProtocol,
		Message:  "Bridge call failed",
		Detail:   "The browser shim reported an error for the call.",
		DocURL:   docBase + "P063",
	},

	// ============================================
	// Backend Errors (P070-P079)
	// ============================================

	"P070": {
		Category: CategoryBackend,
		Message:  "Invalid request body",
		Detail:   "The request body is not valid JSON or is missing required fields.",
		DocURL:   docBase + "P070",
	},
	"P071": {
		Category: CategoryBackend,
		Message:  "Provider API request failed",
		Detail:   "The payment provider rejected the server-side request.",
		DocURL:   docBase + "P071",
	},
	"P072": {
		Category: CategoryBackend,
		Message:  "Product catalog unavailable",
		Detail:   "The product catalog could not be read.",
		DocURL:   docBase + "P072",
	},

	// ============================================
	// Config File Errors (P080-P089)
	// ============================================

	"P080": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   docBase + "P080",
	},
	"P081": {
		Category: CategoryConfig,
		Message:  "Missing required configuration value",
		Detail:   "A required configuration value is empty.",
		DocURL:   docBase + "P081",
	},

	// ============================================
	// CLI Errors (P090-P099)
	// ============================================

	"P090": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
		DocURL:   docBase + "P090",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
