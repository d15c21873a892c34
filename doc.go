// Package codec implements the ADΔER event-video codec: a pixel-level
// event-generation model plus a compressed representation for the
// asynchronous (D, Δt) events it produces.
//
// Basic usage for encoding a stream of events:
//
//	meta := codec.DefaultMetadata(plane, refInterval, aduInterval, codec.DefaultCRF)
//	out := codec.NewCompressedOutput(w, meta)
//	for _, e := range events {
//	    if err := out.IngestEvent(e); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	if err := out.Flush(); err != nil {
//	    log.Fatal(err)
//	}
//
// Basic usage for decoding:
//
//	in := codec.NewCompressedInput(r, meta)
//	for {
//	    e, err := in.DigestEvent()
//	    if errors.Is(err, codec.ErrEndOfFile) {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // use e
//	}
package codec
