package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Compose returns the world transform of a child with local transform t
// under parent. Scale is propagated per component so reflections survive.
func (t Transform) Compose(parent Transform) Transform {
	scaledLocalPos := mgl32.Vec3{
		t.Position.X() * parent.Scale.X(),
		t.Position.Y() * parent.Scale.Y(),
		t.Position.Z() * parent.Scale.Z(),
	}
	return Transform{
		Position: parent.Position.Add(parent.Rotation.Rotate(scaledLocalPos)),
		Rotation: parent.Rotation.Mul(t.Rotation).Normalize(),
		Scale: mgl32.Vec3{
			parent.Scale.X() * t.Scale.X(),
			parent.Scale.Y() * t.Scale.Y(),
			parent.Scale.Z() * t.Scale.Z(),
		},
	}
}

// QuatFromEuler builds a rotation from Euler angles in radians applied
// Z first, then X, then Y.
func QuatFromEuler(euler mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(euler.X(), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(euler.Y(), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(euler.Z(), mgl32.Vec3{0, 0, 1})
	return qy.Mul(qx).Mul(qz).Normalize()
}

func QuatFromEulerDegrees(deg mgl32.Vec3) mgl32.Quat {
	return QuatFromEuler(mgl32.Vec3{
		mgl32.DegToRad(deg.X()),
		mgl32.DegToRad(deg.Y()),
		mgl32.DegToRad(deg.Z()),
	})
}

// EulerRadians is the inverse of QuatFromEuler. Angles are wrapped to
// [0, 2π). At gimbal lock the Z angle is folded into Y.
func (t Transform) EulerRadians() mgl32.Vec3 {
	q := t.Rotation.Normalize()
	w, x, y, z := q.W, q.V.X(), q.V.Y(), q.V.Z()

	sinX := 2 * (w*x - y*z)
	var ex, ey, ez float32
	if math32.Abs(sinX) >= 0.99999 {
		ex = math32.Copysign(math32.Pi/2, sinX)
		ey = math32.Atan2(-2*(x*z-w*y), 1-2*(y*y+z*z))
		ez = 0
	} else {
		ex = math32.Asin(sinX)
		ey = math32.Atan2(2*(x*z+w*y), 1-2*(x*x+y*y))
		ez = math32.Atan2(2*(x*y+w*z), 1-2*(x*x+z*z))
	}
	return mgl32.Vec3{wrapAngle(ex), wrapAngle(ey), wrapAngle(ez)}
}

func wrapAngle(a float32) float32 {
	const twoPi = 2 * math32.Pi
	a = math32.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}
