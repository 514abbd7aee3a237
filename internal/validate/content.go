// content.go implements document content validation.
//
// Only presence and size are checked. Content is free text and its format
// is never inspected.

package validate

// Content validates a document body. A nil body means the caller did not
// supply one, which is rejected; an empty string is a valid body.
// maxLen <= 0 disables the size limit.
func Content(content *string, maxLen int64) error {
	if content == nil {
		return ErrContentRequired
	}
	if maxLen > 0 && int64(len(*content)) > maxLen {
		return ErrContentTooLarge
	}
	return nil
}
