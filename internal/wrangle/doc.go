// Package wrangle implements the dataset transformation operations:
// confidence filtering, geometry filters, class removal and remapping,
// box deduplication, and class-targeted sampling. Operations are pure
// record transforms; nothing here touches the filesystem.
package wrangle
