// Package template defines screen templates and the registry that serves
// them.
//
// A template (Model) describes one screen type: the form rectangle in the
// coordinates of a reference screenshot, the items on it, and descriptive
// relations between items. One item is tagged as a control point; its text
// candidates are what the matching engine searches for to align the
// template with a recognized screenshot.
//
// # File Format
//
// Templates are JSON (canonical) or YAML files with the same field names:
//
//	{
//	  "id": "model007",
//	  "screen_type": "patient-registration",
//	  "form": {
//	    "rect": {"left": 0, "top": 0, "right": 1031, "bottom": 710},
//	    "items": [
//	      {"id": "title", "type": "caption",
//	       "rect": {"left": 0, "top": 0, "right": 170, "bottom": 30},
//	       "text": ["Patient Registration"], "control_point": "top_left"}
//	    ]
//	  }
//	}
//
// Every document is validated against the JSON Schema returned by Schema
// before it is decoded. Load failures are reported as *ParseError.
//
// # Registry Lifecycle
//
// Build creates a Registry from an ordered source list. A Registry is not
// modified once built. Store holds the current Registry and replaces it as a
// whole on Reload, so concurrent readers always see a complete template set.
// Watcher drives Store.Reload from file system events.
package template
