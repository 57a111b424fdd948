// Package fingerprint computes the content fingerprint that identifies an
// addon folder on the content addressed repository.
//
// The fingerprint only covers files the game would load, so shipping extra
// media or documentation does not change it, and whitespace differences
// introduced by line ending conversion are ignored.
package fingerprint
