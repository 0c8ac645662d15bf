// Package artnet sends universes as ArtDMX packets over UDP.
//
// Two transports exist: UDPTransport writes every packet to one target
// (usually the broadcast address), NodeTransport uses a go-artnet controller
// which discovers nodes with ArtPoll and unicasts to the ones patched to
// each universe.
package artnet
