// package ui implements the interactive candidate picker shown after a
// capture run, before confirmed garments are added to the wardrobe.
package ui
