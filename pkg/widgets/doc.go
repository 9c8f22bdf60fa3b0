// Package widgets binds every widget type to the lifecycle controller.
//
//	card, err := widgets.NewCard(elems.Scope(), element.Config{
//	    Slot:    "#card-element",
//	    Options: sdk.Options{"hidePostalCode": true},
//	})
//	card.On(sdk.EventChange, func(ev sdk.Event) { ... })
//
// A binding only names the widget kind, the events it re-emits and its
// default options; all behavior lives in package element.
package widgets
