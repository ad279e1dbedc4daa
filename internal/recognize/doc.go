// Package recognize turns a screenshot into a structured record.
//
// A Recognizer runs the whole flow for one request:
//
//  1. OCR the image through the request's pre-processing pipeline.
//  2. Try the caption locator at native resolution and re-express its
//     alignment at the requested scale.
//  3. Otherwise match templates against the full document.
//  4. Shift the alignment by the border the pipeline added.
//  5. Extract the template's fields.
//
// Expected failures (unreadable image, bad pipeline, unknown screen) come
// back as a Result with Success false and the reason in Errors. Only template
// configuration errors are returned as Go errors.
package recognize
