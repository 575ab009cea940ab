// Package volume turns a MINC node tree into a calibrated float32 volume
// and the JSON header a volume viewer expects.
//
// Integer images are rescaled slice by slice from their valid range into
// the real range given by the image-min and image-max datasets. Float
// images are copied, with values outside the valid range set to zero.
//
// Load accepts both MINC-2 (HDF5) and MINC-1 (NetCDF classic) buffers.
package volume
