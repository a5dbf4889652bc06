// Package tasks walks a songs folder and turns chart ratings into pack verdicts.
//
// # Layout
//
// The root holds one directory per pack and each pack one directory per song.
// Anything that is not a directory at those two levels is ignored.
//
// # Operations
//
//  1. [SelectChartFile] : pick the one chart file a song is judged by
//     (an .ssc file beats an .sm file; among equals the last in walk order wins)
//  2. [Engine.ScanSong] : read, decode and scan that file
//  3. [Engine.ScanPack] : count songs, parsed songs and songs with an in-range chart
//  4. [Engine.Run] : scan every pack, apply the [Policy] and return a [Report]
//
// # Selection
//
// A pack is selected when the fraction of songs with an in-range chart is below
// the selection threshold and the fraction of songs that produced no rating at
// all is at most the tolerated mistake fraction. A pack whose parsed count
// differs from its song count is reported as a potential mistake.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate] values. Sends never
// block; updates are dropped when the channel is full.
package tasks
