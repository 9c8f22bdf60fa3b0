package sdk

import "context"

// Loader loads the remote SDK for a publishable key.
type Loader interface {
	Load(ctx context.Context, publicKey string, opts LoadOptions) (Handle, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, publicKey string, opts LoadOptions) (Handle, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, publicKey string, opts LoadOptions) (Handle, error) {
	return f(ctx, publicKey, opts)
}

// Handle is an initialized SDK instance.
type Handle interface {
	// Elements creates an elements group, the factory for widgets.
	Elements(ctx context.Context, opts ElementsOptions) (Group, error)

	// ConfirmPayment confirms a payment intent with the details collected by
	// the widgets of group. Provider-reported failures come back in the
	// result; the error is reserved for transport failures.
	ConfirmPayment(ctx context.Context, group Group, params ConfirmParams) (*ConfirmResult, error)

	// ConfirmSetup confirms a setup intent, with the same error contract as
	// ConfirmPayment.
	ConfirmSetup(ctx context.Context, group Group, params ConfirmParams) (*ConfirmResult, error)

	// RedirectToCheckout navigates the browser to a hosted checkout page.
	RedirectToCheckout(ctx context.Context, opts RedirectOptions) (*RedirectResult, error)

	// RegisterAppInfo attaches integration metadata to API calls.
	RegisterAppInfo(ctx context.Context, info AppInfo) error
}

// Group is an elements group. All widgets created from one group share the
// same intent and appearance.
type Group interface {
	// Create creates a widget of the given kind.
	Create(ctx context.Context, kind Kind, opts Options) (Widget, error)

	// Update changes group-level options such as appearance and locale.
	Update(ctx context.Context, opts ElementsOptions) error
}

// Widget is one interactive element created from a group.
type Widget interface {
	// Kind returns the widget type.
	Kind() Kind

	// Mount attaches the widget to a slot (a DOM selector on the client).
	Mount(ctx context.Context, slot string) error

	// Unmount detaches the widget; it can be mounted again.
	Unmount(ctx context.Context) error

	// Destroy removes the widget permanently.
	Destroy(ctx context.Context) error

	// On subscribes h to events with the given name.
	On(name EventName, h Handler) HandlerID

	// Off removes a subscription created by On.
	Off(name EventName, id HandlerID)
}

// Updater is implemented by widgets that accept option updates in place.
type Updater interface {
	Update(ctx context.Context, opts Options) error
}

// Focuser is implemented by widgets that can take and release focus.
type Focuser interface {
	Focus(ctx context.Context) error
	Blur(ctx context.Context) error
}

// Clearer is implemented by widgets whose input can be cleared.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Handler receives widget events.
type Handler func(Event)

// HandlerID identifies a subscription made with Widget.On.
type HandlerID uint64
