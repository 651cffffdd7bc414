// Package filexfer implements a bus-resident file-transfer and
// firmware-update module for an embedded device.
//
// The primary elements of interest are:
//
//  *  Module, the command dispatcher and session state machine that a host
//     registers against a single function-property object index.
//
//  *  Filesystem, FileHandle and DirHandle, the interfaces a host must
//     implement over its on-flash storage; NotImplementedFilesystem may be
//     embedded to obtain ENOSYS-equivalent stubs for capabilities a
//     particular host doesn't support.
//
//  *  Updater, the interface a host implements to stage a firmware image
//     and perform the deferred reboot.
//
// The package diskfs provides a reference Filesystem backed by real files,
// used by this module's own tests and by cmd/ftmdemo. It is not intended
// for production use as-is.
package filexfer
