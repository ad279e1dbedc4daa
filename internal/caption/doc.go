// Package caption aligns templates using a screen's colored title bar.
//
// Many of the screens noisseur reads carry a solid navy caption. The Locator
// scans the top third of a screenshot for rows of that color, crops the band,
// frames it with a black margin and recognizes only that strip. The caption
// text then anchors a template at the image's native resolution, and the
// resulting offset is mapped back into full-image coordinates.
//
// A miss is not an error for callers: Locate returns nil and recognition
// falls back to matching on the full document.
package caption
