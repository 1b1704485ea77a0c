// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated between the array firmware and the
// controller over a serial port (or a network bridge of one).
//
// Every message is a text frame: a start marker '<', the payload and an
// end marker '>'. Several frames written at once are separated by ';'.
// There is no length field, sequence number or checksum; the receiver
// resynchronizes on the next start marker, so boot banners and other line
// noise between frames are harmless.
//
// Producer: array firmware (replies, ready banner)
// Consumer: controller
