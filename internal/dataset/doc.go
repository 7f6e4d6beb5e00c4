// Package dataset loads annotated image folders into records and exports
// wrangled records back to disk. It understands the darknet folder layout:
// a subset folder of images with annotation text files either side by side
// or in a YOLO_darknet or labels subfolder.
package dataset
