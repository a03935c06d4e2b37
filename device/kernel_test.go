package device

import (
	"errors"
	"testing"
)

func TestKernelExec1D(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	kernel, err := dev.Kernel("square")
	if err != nil {
		t.Fatal(err)
	}
	defer kernel.Release()

	dataSize := 1000
	dataIn := make([]int32, dataSize)
	for i := 0; i < dataSize; i++ {
		dataIn[i] = int32(i)
	}

	bufIn := NewBuffer[int32](dev.Arena(), "in")
	defer bufIn.Destroy()
	if err = bufIn.Upload(dataIn); err != nil {
		t.Fatal(err)
	}

	bufOut := NewBuffer[int32](dev.Arena(), "out")
	defer bufOut.Destroy()
	if _, err = bufOut.EnsureCapacity(dataSize); err != nil {
		t.Fatal(err)
	}

	if err = kernel.SetArgs(bufIn, bufOut); err != nil {
		t.Fatal(err)
	}

	if _, err = kernel.Exec1D(0, dataSize); err != nil {
		t.Fatal(err)
	}

	// Fetch and validate output
	dataOut := make([]int32, dataSize)
	bufOut.Read(dataOut)
	for i := 0; i < dataSize; i++ {
		expValue := dataIn[i] * dataIn[i]
		if dataOut[i] != expValue {
			t.Fatalf("[item %d] expected squared value of %d to be %d; got %d", i, dataIn[i], expValue, dataOut[i])
		}
	}
}

func TestKernelExec2D(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	kernel, err := dev.Kernel("index2D")
	if err != nil {
		t.Fatal(err)
	}

	width, height := 37, 23
	out := NewBuffer[int32](dev.Arena(), "out")
	if _, err = out.EnsureCapacity(width * height); err != nil {
		t.Fatal(err)
	}
	if err = kernel.SetArgs(out, int32(width)); err != nil {
		t.Fatal(err)
	}

	// Only process the bottom-right quadrant
	if _, err = kernel.Exec2D(10, 5, width-10, height-5); err != nil {
		t.Fatal(err)
	}

	data := out.Data()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var exp int32
			if x >= 10 && y >= 5 {
				exp = int32(y*1000 + x)
			}
			if got := data[y*width+x]; got != exp {
				t.Fatalf("[%d, %d] expected %d; got %d", x, y, exp, got)
			}
		}
	}
}

func TestQueueExecutesInOrder(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	addOne, err := dev.Kernel("addOne")
	if err != nil {
		t.Fatal(err)
	}
	double, err := dev.Kernel("double")
	if err != nil {
		t.Fatal(err)
	}

	dataSize := 4096
	buf := NewBuffer[int32](dev.Arena(), "data")
	if _, err = buf.EnsureCapacity(dataSize); err != nil {
		t.Fatal(err)
	}
	if err = addOne.SetArgs(buf); err != nil {
		t.Fatal(err)
	}
	if err = double.SetArgs(buf); err != nil {
		t.Fatal(err)
	}

	// ((0 + 1) * 2 + 1) * 2 = 6; any reordering yields a different value
	q := dev.NewQueue("test")
	for i := 0; i < 2; i++ {
		if err = q.Dispatch1D(addOne, 0, dataSize); err != nil {
			t.Fatal(err)
		}
		if err = q.Dispatch1D(double, 0, dataSize); err != nil {
			t.Fatal(err)
		}
		q.Commit()
	}

	if err = q.Wait(); err != nil {
		t.Fatal(err)
	}

	for i, v := range buf.Data() {
		if v != 6 {
			t.Fatalf("[item %d] expected 6; got %d", i, v)
		}
	}

	if timings := q.Timings(); len(timings) != 4 || timings[0].Label != "addOne" || timings[1].Label != "double" {
		t.Fatalf("expected 4 timings in dispatch order; got %+v", timings)
	}
}

func TestQueueStopsAtFirstError(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	errFirst := errors.New("first")
	var executed []string

	q := dev.NewQueue("test")
	q.Do("a", func() error { executed = append(executed, "a"); return nil })
	q.Do("b", func() error { executed = append(executed, "b"); return errFirst })
	q.Do("c", func() error { executed = append(executed, "c"); return errors.New("second") })
	q.Commit()
	q.Do("d", func() error { executed = append(executed, "d"); return nil })

	if err = q.Wait(); err != errFirst {
		t.Fatalf("expected first error to be returned; got %v", err)
	}
	if len(executed) != 2 || executed[0] != "a" || executed[1] != "b" {
		t.Fatalf("expected only commands a and b to run; got %v", executed)
	}

	// Error is cleared by Wait
	q.Do("e", func() error { executed = append(executed, "e"); return nil })
	if err = q.Wait(); err != nil {
		t.Fatalf("expected error to be cleared; got %v", err)
	}
	if executed[len(executed)-1] != "e" {
		t.Fatalf("expected command e to run after the error was collected; got %v", executed)
	}
}

func TestQueueDiscard(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	var executed []string
	q := dev.NewQueue("test")
	q.Do("a", func() error { executed = append(executed, "a"); return nil })
	q.Do("b", func() error { executed = append(executed, "b"); return nil })
	if q.Pending() != 2 {
		t.Fatalf("expected 2 pending commands; got %d", q.Pending())
	}

	q.Discard()
	q.Do("c", func() error { executed = append(executed, "c"); return nil })
	if err = q.Wait(); err != nil {
		t.Fatal(err)
	}
	if len(executed) != 1 || executed[0] != "c" {
		t.Fatalf("expected only command c to run; got %v", executed)
	}
}

func TestQueuedDispatchKeepsRecordedBuffers(t *testing.T) {
	dev, err := createCpuTestDevice()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	kernel, err := dev.Kernel("square")
	if err != nil {
		t.Fatal(err)
	}

	dataSize := 16
	in := NewBuffer[int32](dev.Arena(), "in")
	out := NewBuffer[int32](dev.Arena(), "out")
	if _, err = out.EnsureCapacity(dataSize); err != nil {
		t.Fatal(err)
	}
	src := make([]int32, dataSize)
	for i := range src {
		src[i] = int32(i)
	}
	if err = in.Upload(src); err != nil {
		t.Fatal(err)
	}
	if err = kernel.SetArgs(in, out); err != nil {
		t.Fatal(err)
	}

	q := dev.NewQueue("test")
	if err = q.Dispatch1D(kernel, 0, dataSize); err != nil {
		t.Fatal(err)
	}

	// Growing out and releasing in must not affect the recorded dispatch
	recorded := out.Data()
	if _, err = out.EnsureCapacity(2 * dataSize); err != nil {
		t.Fatal(err)
	}
	in.Destroy()

	if err = q.Wait(); err != nil {
		t.Fatalf("expected recorded dispatch to run; got %v", err)
	}
	for i, v := range recorded {
		if exp := int32(i * i); v != exp {
			t.Fatalf("[item %d] expected %d; got %d", i, exp, v)
		}
	}
	for i, v := range out.Data() {
		if v != 0 {
			t.Fatalf("[item %d] expected reallocated buffer to be untouched; got %d", i, v)
		}
	}
}
