// Package contentstream tokenizes decoded page content streams.
//
// A content stream is a sequence of operands followed by an operator:
//
//	p := contentstream.NewParser(data)
//	for {
//		op, err := p.Next()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		fmt.Println(op.Operator, op.Operands)
//	}
//
// Operands are [Number], [String], [Name], [Bool], [Null], [Array] and
// [Dict]. String operands keep their raw bytes; decoding them into text is
// left to the consumer, which knows the current font.
//
// Comments are skipped, and inline images (BI ... ID ... EI) are reported as
// a single BI operation with their binary data skipped.
package contentstream
