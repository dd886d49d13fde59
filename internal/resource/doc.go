// Package resource describes USB boot-mode loader slots a driver can bind to.
//
// Ownership boundary:
// - loader resource identity (bus/device, device path, exporter host)
//
// - command prefix used to route invocations to the host owning the device
//
// Discovery and acquisition of the devices themselves are handled elsewhere;
// values here are plain descriptions.
package resource
