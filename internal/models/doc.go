// package models defines the data model for the digitized wardrobe:
// articles (garments), outfits, and the candidates produced by detection.
package models
