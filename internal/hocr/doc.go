// Package hocr parses Tesseract's hOCR output into the small document model
// the matching engine works on.
//
// # Structure
//
// An hOCR file is HTML whose elements carry a class naming their layout role
// and a title holding semicolon separated properties:
//
//	<span class='ocr_line' title='bbox 36 92 618 116; baseline 0 -5'>
//	  <span class='ocrx_word' title='bbox 36 92 96 116; x_wconf 92'>Last</span>
//	</span>
//
// Only two levels matter here. Lines (ocr_line, ocr_caption, ocr_header and
// ocr_textfloat) hold words (ocrx_word). Pages, areas and paragraphs are
// flattened away; line order is document order.
//
// # Confidence
//
// Each Word carries the engine's word confidence (x_wconf, 0-100) and the
// mean of its character confidences (x_conf on ocrx_cinfo children, emitted
// when Tesseract runs with hocr_char_boxes=1). Without character boxes the
// two values are equal.
package hocr
