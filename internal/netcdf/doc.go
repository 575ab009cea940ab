// Package netcdf reads NetCDF classic files (CDF-1 and the 64-bit offset
// CDF-2 variant), the container used by MINC-1 volumes.
//
// The decoded file is presented as the same node tree the hdf5 package
// builds: a root node carrying the global attributes with one child per
// variable. Two MINC conventions are filled in so the tree can be handed to
// volume reconstruction unchanged: dimension variables get a "length"
// attribute and every variable with dimensions gets a "dimorder" attribute.
package netcdf
